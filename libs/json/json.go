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

package json

import (
	"encoding/json"
	"fmt"

	vgfs "github.com/zombienet/zombie-bite/libs/fs"
)

func Prettify(data interface{}) ([]byte, error) {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

func Print(data interface{}) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("unable to marshal message: %w", err)
	}

	fmt.Printf("%v\n", string(buf))

	return nil
}

// WriteFile writes data as indented JSON, atomically.
func WriteFile(path string, data interface{}) error {
	bytes, err := Prettify(data)
	if err != nil {
		return fmt.Errorf("unable to marshal %s: %w", path, err)
	}
	return vgfs.WriteFile(path, append(bytes, '\n'))
}

// ReadFile decodes the JSON file at path into v.
func ReadFile(path string, v interface{}) error {
	bytes, err := vgfs.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bytes, v); err != nil {
		return fmt.Errorf("unable to decode %s: %w", path, err)
	}
	return nil
}
