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

package overrides

// activeConfig is the encoded HostConfiguration installed in
// Configuration.ActiveConfig of every forked relay chain.
const activeConfig = "" +
	"0000300000500000aaaa020000001000fbff0000100000000a00000040380000" +
	"5802000003000000020000000000500000c800008000000000e8764817000000" +
	"000000000000000000e87648170000000000000000000000e803000000900100" +
	"80000000009001000c01002000000600c4090000000000000601983a00000000" +
	"0000403800000006000000580200000300000019000000000000000200000002" +
	"0000000200000014000000010000000803010000001400000004000000010500" +
	"0000010000000100000000000000f401000080b2e60e80c3c90180b2e60e0000" +
	"0000000000000000000005000000"
