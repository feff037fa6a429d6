package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	ConfigFileName string = "plasmagym"
)

var (
	appPath string
)

func AppPath() string {
	if appPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		appPath = cwd
	}

	return appPath
}

func DefaultConfigPath() string {
	return filepath.Join(AppPath(), ConfigFileName+".yaml")
}

func GetAppRelativePath(absolutePath string) string {
	if strings.HasPrefix(absolutePath, AppPath()+string(filepath.Separator)) {
		return absolutePath[len(AppPath())+1:]
	}
	return absolutePath
}
