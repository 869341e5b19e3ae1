// Package assets provides the résumé HTML template and CSS styles.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the generator. It tries the custom
// FilesystemLoader first and falls back to EmbeddedLoader when the asset is
// not found, so a deployment can override the stylesheet alone.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # e.g. resume.css, compact.css
//	└── templates/
//	    └── {name}.html          # e.g. resume.html (html/template syntax)
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets

// DefaultStyleName is the name of the built-in CSS style.
const DefaultStyleName = "resume"

// DefaultTemplateName is the name of the built-in résumé template.
const DefaultTemplateName = "resume"
