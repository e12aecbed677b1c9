// Copyright 2024 The mecs-go Authors
// This file is part of mecs-go.
//
// mecs-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// mecs-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with mecs-go. If not, see <http://www.gnu.org/licenses/>.

package xlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogfmtFormatIncludesMessageAndContext(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(nil, &swapHandler{h: StreamHandler(&buf, LogfmtFormat())})

	log.Info("arena exhausted", "zone", 3, "handle", 0xBEEF)

	out := buf.String()
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "arena exhausted")
	require.Contains(t, out, "zone=3")
	require.Contains(t, out, "handle=48879")
}

func TestLoggerNewMergesBoundContext(t *testing.T) {
	var buf bytes.Buffer
	root := newLogger(nil, &swapHandler{h: StreamHandler(&buf, LogfmtFormat())})
	child := root.New("pkg", "scheduler")

	child.Warn("fault", "slot", 2)

	out := buf.String()
	require.Contains(t, out, "pkg=scheduler")
	require.Contains(t, out, "slot=2")
}

func TestLvlFilterHandlerDropsVerboseRecords(t *testing.T) {
	var buf bytes.Buffer
	filtered := LvlFilterHandler(LvlWarn, StreamHandler(&buf, LogfmtFormat()))
	log := newLogger(nil, &swapHandler{h: filtered})

	log.Debug("should be dropped")
	log.Error("should appear")

	out := buf.String()
	require.False(t, strings.Contains(out, "should be dropped"))
	require.True(t, strings.Contains(out, "should appear"))
}

func TestTerminalFormatWithoutColorHasNoEscapeCodes(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(nil, &swapHandler{h: StreamHandler(&buf, TerminalFormat(false))})

	log.Info("plain line")

	require.NotContains(t, buf.String(), "\x1b[")
}

func TestMissingContextValueRendersMarker(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(nil, &swapHandler{h: StreamHandler(&buf, LogfmtFormat())})

	log.Info("odd args", "onlykey")

	require.Contains(t, buf.String(), "onlykey=<missing>")
}
