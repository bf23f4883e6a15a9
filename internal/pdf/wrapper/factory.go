package wrapper

import (
	"fmt"

	"go.uber.org/zap"
)

// PDFLibraryFactory creates PDF library instances with unified interface
type PDFLibraryFactory struct {
	defaultLibrary LibraryType
	config         FactoryConfig
}

// FactoryConfig contains configuration options for the factory
type FactoryConfig struct {
	// PreferredLibrary is the library created by CreateDefault
	PreferredLibrary LibraryType `json:"preferred_library"`

	// TextMode selects the page text extraction strategy
	TextMode TextMode `json:"text_mode"`

	// Logger receives library diagnostics; a nil logger discards them
	Logger *zap.Logger `json:"-"`
}

// DefaultFactoryConfig returns the configuration used by NewPDFLibraryFactory
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		PreferredLibrary: LibraryPDFCPU,
		TextMode:         TextModePlain,
	}
}

// NewPDFLibraryFactory creates a new factory with default configuration
func NewPDFLibraryFactory() *PDFLibraryFactory {
	return NewPDFLibraryFactoryWithConfig(DefaultFactoryConfig())
}

// NewPDFLibraryFactoryWithConfig creates a factory with custom configuration
func NewPDFLibraryFactoryWithConfig(config FactoryConfig) *PDFLibraryFactory {
	if config.PreferredLibrary == "" {
		config.PreferredLibrary = LibraryPDFCPU
	}
	if config.TextMode == "" {
		config.TextMode = TextModePlain
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &PDFLibraryFactory{
		defaultLibrary: config.PreferredLibrary,
		config:         config,
	}
}

// Create instantiates a PDF library of the specified type
func (f *PDFLibraryFactory) Create(libType LibraryType) (PDFLibrary, error) {
	if err := ValidateTextMode(f.config.TextMode); err != nil {
		return nil, &WrapperError{Library: libType, Op: "factory", Err: err}
	}

	switch libType {
	case LibraryPDFCPU:
		return NewPDFCPULibrary(f.config), nil
	default:
		return nil, &WrapperError{
			Library: libType,
			Op:      "factory",
			Err:     fmt.Errorf("%w: %s", ErrUnsupportedLibrary, libType),
		}
	}
}

// CreateDefault instantiates the factory's default library. Its signature
// matches the engine constructor expected by the batch runner.
func (f *PDFLibraryFactory) CreateDefault() (PDFLibrary, error) {
	return f.Create(f.defaultLibrary)
}

// ValidateTextMode checks if a text extraction mode is supported
func ValidateTextMode(mode TextMode) error {
	switch mode {
	case TextModePlain, TextModeRows:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedTextMode, mode)
	}
}
