// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

package state

import (
	"bytes"
	"encoding/gob"
)

// encodeGob/decodeGob serialize the durable leaf values (AssetOutput,
// ContractOutput) for storage/database.Database. Disk format is explicitly
// not prescribed by spec.md §6 ("exact encoding is not prescribed by the
// core"), so gob is a reasonable internal choice distinct from the
// consensus-critical hashing encoder in blockchain/types/encoding.go.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(raw []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(raw)).Decode(v)
}
