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

package main

import (
	"encoding/json"
	"os"
)

// RunConfig holds the subset of per-run tuning the teacher's `cmd/gprobe`
// loads from a TOML file (see config.go's gprobeConfig/loadConfig there).
// mecs-go has nowhere near that surface (no node/network/metrics config),
// so this is a single flat struct decoded with encoding/json rather than
// pulling in naoina/toml for one small file with no nested sections.
type RunConfig struct {
	MemSize        int `json:"memSize,omitempty"`
	Steps          int `json:"steps,omitempty"`
	RoundsPerSlice int `json:"roundsPerSlice,omitempty"`
	MaxSlices      int `json:"maxSlices,omitempty"`
}

// loadRunConfig reads and decodes a RunConfig from path. An empty path
// returns the zero value: every field unset, so callers fall back to their
// flag defaults.
func loadRunConfig(path string) (RunConfig, error) {
	var cfg RunConfig
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyIfSet returns cfgVal when cfg carries a non-zero override and the
// corresponding flag was left at its default, and flagVal otherwise, so an
// explicit CLI flag always wins over the config file.
func applyIfSet(flagSet bool, flagVal, cfgVal int) int {
	if flagSet || cfgVal == 0 {
		return flagVal
	}
	return cfgVal
}
