package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppDirName names the application directories in default paths
const AppDirName = "html5-client"

// Platform is the ambient state that shapes defaults and tool discovery
type Platform struct {
	GOOS string
	// Prefix is the installation prefix, like /usr on Linux
	Prefix string
	// SearchPath holds the $PATH entries
	SearchPath []string
	WorkDir    string
	// Java is the value of $JAVA, if any
	Java string
}

// DetectPlatform captures the current process environment
func DetectPlatform() Platform {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	p := Platform{
		GOOS:       runtime.GOOS,
		SearchPath: filepath.SplitList(os.Getenv("PATH")),
		WorkDir:    wd,
		Java:       os.Getenv("JAVA"),
	}
	p.Prefix = defaultPrefix(p.GOOS, os.Getenv("ProgramFiles"))
	return p
}

func defaultPrefix(goos, programFiles string) string {
	switch goos {
	case "windows":
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		return strings.TrimRight(programFiles, `\`) + `\` + AppDirName
	case "freebsd", "darwin":
		return "/usr/local"
	default:
		return "/usr"
	}
}

// backgroundCandidates are desktop wallpapers that stand in for the
// client's background image when a distribution ships one
var backgroundCandidates = []interface{}{
	"/usr/share/backgrounds/images/default.png",
	"/usr/share/backgrounds/images/*default*.png",
	"/usr/share/backgrounds/*default*png",
	"/usr/share/backgrounds/gnome/adwaita*.jpg",
	"/usr/share/backgrounds/images/*jpg",
}

// Defaults returns the platform layer of the configuration
func (p Platform) Defaults() map[string]interface{} {
	m := map[string]interface{}{
		"minifier": "uglifyjs",
	}
	if p.Java != "" {
		m["java"] = p.Java
	}

	switch p.GOOS {
	case "windows":
		m["install_dir"] = p.Prefix + `\www`
		m["config_dir"] = p.Prefix + `\etc`
		m["minifier"] = "yuicompressor"
		// system library locations are a POSIX notion
		m["symlinks"] = []interface{}{}
		m["extra_symlinks"] = []interface{}{}
		return m
	case "freebsd", "darwin":
		m["config_dir"] = "/usr/local/etc/" + AppDirName
	default:
		m["config_dir"] = "/etc/" + AppDirName
	}
	m["install_dir"] = p.Prefix + "/share/" + AppDirName + "/www"
	m["extra_symlinks"] = []interface{}{
		map[string]interface{}{
			"name":       "background.png",
			"candidates": backgroundCandidates,
		},
	}
	return m
}
