// Copyright (C) 2024  The zombie-bite Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package provider

import (
	"fmt"
	"strings"
)

// Args is a node command line.
type Args []string

// Exists reports whether the flag is already present, as --name or
// --name=value.
func (a Args) Exists(name string) bool {
	name = flagName(name)
	for _, arg := range a {
		if arg == name || strings.HasPrefix(arg, name+"=") {
			return true
		}
	}
	return false
}

// Set appends the flag with its value unless it is already present.
func (a *Args) Set(name, value string) bool {
	if a.Exists(name) {
		return false
	}
	*a = append(*a, flagName(name), value)
	return true
}

// Get returns the value following the flag.
func (a Args) Get(name string) (string, bool) {
	name = flagName(name)
	for i, arg := range a {
		if arg == name && i+1 < len(a) {
			return a[i+1], true
		}
		if v, ok := strings.CutPrefix(arg, name+"="); ok {
			return v, true
		}
	}
	return "", false
}

// SplitExtraArgs reads a comma separated list of extra node arguments.
func SplitExtraArgs(s string) Args {
	var out Args
	for _, arg := range strings.Split(s, ",") {
		if arg = strings.TrimSpace(arg); arg != "" {
			out = append(out, arg)
		}
	}
	return out
}

func flagName(name string) string {
	if strings.HasPrefix(name, "-") {
		return name
	}
	return fmt.Sprintf("--%s", name)
}
