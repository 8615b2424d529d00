package assets

// Built-in asset names.
const (
	CatalogStyle    = "catalog"
	CatalogTemplate = "catalog"
	CaptureScript   = "capture"
)

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the embedded loader.
// The name should not include the .css extension or path components.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads an HTML template by name using the embedded loader.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// LoadScript loads a JavaScript file by name using the embedded loader.
func LoadScript(name string) (string, error) {
	return defaultLoader.LoadScript(name)
}
