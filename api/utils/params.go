// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"

	"github.com/gorilla/schema"
)

var schemaDecoder = schema.NewDecoder()

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
	schemaDecoder.ZeroEmpty(true)
}

// DecodeQuery decodes URL query parameters into v by schema tags.
func DecodeQuery(r *http.Request, v interface{}) error {
	return schemaDecoder.Decode(v, r.URL.Query())
}

// ListOptions are the query parameters common to list endpoints.
type ListOptions struct {
	Limit  int    `schema:"limit"`
	Offset int    `schema:"offset"`
	Order  string `schema:"order"`
}

// Window clamps offset/limit against n items and returns [from, to)
// slice bounds. Limit 0 means no limit.
func (o *ListOptions) Window(n int) (from, to int) {
	from = o.Offset
	if from < 0 {
		from = 0
	}
	if from > n {
		from = n
	}
	to = n
	if o.Limit > 0 && from+o.Limit < to {
		to = from + o.Limit
	}
	return
}
