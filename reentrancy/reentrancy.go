// Copyright 2026 Blink Labs Software
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

// Package reentrancy guards entrypoints against nested calls made from
// within an external callback.
package reentrancy

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
)

type ctxKey struct{}

var keyGuard = types.MakeKey(types.ModuleCore, "reentrancy", nil)

// Enter marks the context as being inside an external call
func Enter(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKey{}, name)
}

// Check fails when the context was handed out by Enter
func Check(ctx context.Context) error {
	if name, ok := ctx.Value(ctxKey{}).(string); ok {
		return fmt.Errorf("%w: inside %s", common.ErrReentrancyDetected, name)
	}
	return nil
}

// Lock sets the persistent guard flag for the duration of an external call
func Lock(kv types.KV) error {
	ok, err := kv.Has(keyGuard)
	if err != nil {
		return err
	}
	if ok {
		return common.ErrReentrancyDetected
	}
	return types.SetValue(kv, keyGuard, true)
}

func Unlock(kv types.KV) error {
	return kv.Delete(keyGuard)
}

// Locked reports whether the guard flag is set
func Locked(kv types.KV) (bool, error) {
	return kv.Has(keyGuard)
}

// Call runs fn with the guard flag set and a marked context. The flag is
// cleared after fn returns, whatever the outcome.
func Call(
	ctx context.Context,
	kv types.KV,
	name string,
	fn func(context.Context) error,
) error {
	if err := Check(ctx); err != nil {
		return err
	}
	if err := Lock(kv); err != nil {
		return err
	}
	fnErr := fn(Enter(ctx, name))
	if err := Unlock(kv); err != nil {
		return err
	}
	return fnErr
}
