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

package metrics

// Config contains the configurable items for this package
type Config struct {
	Enabled bool   `long:"enabled" description:"Serve the zombie-bite metrics"`
	Address string `long:"address" description:"Listen for scrapes on <address>"`
	Path    string `long:"path" description:"HTTP path of the metrics endpoint"`
}

// NewDefaultConfig creates an instance of the package-specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Enabled: false,
		Address: "127.0.0.1:2113",
		Path:    "/metrics",
	}
}
