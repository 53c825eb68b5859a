package tools

import (
	"os"

	"github.com/golang/glog"
)

// OpenFileOrFail is a fail-fast helper for preflight checks on files the
// run cannot proceed without.
func OpenFileOrFail(filePath string) *os.File {
	file, err := os.Open(filePath)
	if err != nil {
		glog.Fatal(err)
	}

	return file
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if directory == "" || directory == "." {
		return nil
	}
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}
