// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schema

import (
	"github.com/mitchellh/mapstructure"

	"github.com/tombee/toolgate/pkg/errors"
)

// Decode fills a typed struct from a validated argument map.
//
// Handlers call this after Validate so their bodies work with typed fields
// instead of map lookups. Field names match the `mapstructure` tag, falling
// back to the case-insensitive field name.
func Decode(args map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "building argument decoder")
	}
	if err := decoder.Decode(args); err != nil {
		return errors.Wrap(err, "decoding arguments")
	}
	return nil
}
