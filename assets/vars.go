// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package assets

import (
	"path/filepath"
	"runtime"
)

// GetPathToAssetsDir returns the absolute path to the directory housing this
// file, so that test configurations and events can be shared across packages.
func GetPathToAssetsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filename)
}

// AssetsRootDir is the absolute path to `assets/`
var AssetsRootDir = GetPathToAssetsDir()

// FixturePath returns the absolute path of a file under `assets/fixtures`
func FixturePath(name string) string {
	return filepath.Join(AssetsRootDir, "fixtures", name)
}
