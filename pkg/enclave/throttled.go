// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyenclave.
//
// go-keyenclave is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package enclave

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-keyenclave/pkg/ratelimit"
	"github.com/jeremyhahn/go-keyenclave/pkg/types"
)

// ThrottledService decorates a Service with per-alias rate limiting on Begin,
// modeling the operation throttling hardware key stores apply per key.
// Characteristics lookups are metadata reads and are never throttled.
type ThrottledService struct {
	service Service
	limiter *ratelimit.Limiter
}

var _ Service = (*ThrottledService)(nil)

// NewThrottledService wraps service with limiter. Sessions beyond the
// per-alias rate are rejected with ErrThrottled.
func NewThrottledService(service Service, limiter *ratelimit.Limiter) *ThrottledService {
	return &ThrottledService{service: service, limiter: limiter}
}

// KeyCharacteristics passes through to the wrapped service.
func (s *ThrottledService) KeyCharacteristics(ctx context.Context, alias string) (*Arguments, error) {
	return s.service.KeyCharacteristics(ctx, alias)
}

// Begin admits the session if the alias is within its operation rate.
func (s *ThrottledService) Begin(ctx context.Context, alias string, mode types.OperationMode,
	params *Arguments, entropy int) (Session, error) {

	if !s.limiter.Allow(alias) {
		return nil, fmt.Errorf("%w: %s", ErrThrottled, alias)
	}
	return s.service.Begin(ctx, alias, mode, params, entropy)
}
