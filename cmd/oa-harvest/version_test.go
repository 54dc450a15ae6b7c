// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestWriteVersion(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	var short bytes.Buffer
	writeVersion(&short, true)
	assert.Equal(t, version+"\n", short.String())

	var long bytes.Buffer
	writeVersion(&long, false)
	lines := strings.Split(strings.TrimSpace(long.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Equal(t, "oa-harvest "+version+" ("+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH+")", lines[0])
		assert.Equal(t, "user-agent: oa-harvest/"+version, lines[1])
	}
}
