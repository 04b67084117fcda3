package cli

// Command descriptions
const (
	MsgRootShort = "Install a web client tree"
	MsgRootLong  = `webinstall copies a browser client into its install location.

Scripts are rewritten for older browsers and minified when a minifier is
available, bundled libraries are replaced by links to the system copies,
configuration files are moved under the configuration directory, and
precompressed .gz and .br siblings are written for the web server.`

	MsgVersionShort = "Print version information"
	MsgVersionLong  = "Print detailed version information including commit hash and build date"

	MsgInstallShort = "Install the client"
	MsgInstallLong  = `Install the client found in the source tree.

ROOT is prepended to every destination, which is how package builds stage
a tree. INSTALL_DIR and CONFIG_DIR default to the platform locations and
MINIFIER is one of uglifyjs, yuicompressor, hjsmin or copy.`

	MsgConfigShort = "Print the effective configuration"
	MsgConfigLong  = `Print the configuration after merging the built-in defaults, the
platform defaults, the configuration file and WEBINSTALL_* variables.`

	MsgCompletionShort = "Generate shell completion script"
)

// Version output
const (
	MsgVersionFormat = "webinstall version %s\n"
	MsgCommitFormat  = "Commit: %s\n"
	MsgBuiltFormat   = "Built:  %s\n"
)
