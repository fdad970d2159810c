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

package io

import "io"

// CountWriter counts the bytes written through it, e.g. the compressed size
// of a snapshot.
type CountWriter struct {
	count  int64
	writer io.Writer
}

func NewCountWriter(w io.Writer) *CountWriter {
	return &CountWriter{
		writer: w,
	}
}

func (w *CountWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	w.count += int64(n)
	return n, err
}

func (w *CountWriter) Count() int64 {
	return w.count
}

// CountReader counts the bytes read through it.
type CountReader struct {
	count  int64
	reader io.Reader
}

func NewCountReader(r io.Reader) *CountReader {
	return &CountReader{
		reader: r,
	}
}

func (r *CountReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.count += int64(n)
	return n, err
}

func (r *CountReader) Count() int64 {
	return r.count
}
