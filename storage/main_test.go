package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cppla/socialbbs/config"
)

var tempRoot string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "storage-test")
	if err != nil {
		panic(err)
	}
	tempRoot = dir
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func testConfig(driver string) config.AppConfig {
	return config.AppConfig{
		StorageDriver:    driver,
		StorageLocalDir:  filepath.Join(tempRoot, driver),
		StoragePublicURL: "/static/uploads",
	}
}
