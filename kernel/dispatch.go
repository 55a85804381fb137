// Copyright 2025 go-highway Authors
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

package kernel

import (
	"os"
	"slices"
	"sync"

	"github.com/ajroetker/gemm/matrix"
	"github.com/ajroetker/go-highway/hwy"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// GEMM_KERNEL is the environment variable naming the strategy Best returns,
// overriding the priority order. Naming an unregistered strategy is a
// configuration error: Best returns ErrUnknownKernel.
const GEMM_KERNEL = "GEMM_KERNEL"

// DefaultKernel, if not empty, is used as the strategy name when GEMM_KERNEL
// isn't set.
var DefaultKernel string

// Factory builds a strategy for T with its default parameters.
type Factory[T matrix.Float] func() (Strategy[T], error)

type registration struct {
	name     string
	priority int
	factory  any // Factory[T] for some T.
}

var (
	registryMu sync.RWMutex
	registry   []registration

	// simdISA names the vector extension found at init, or the fallback.
	simdISA   string
	simdFound bool
)

func init() {
	simdFound, simdISA = probeSIMD()
	if hwy.NoSimdEnv() {
		simdFound = false
	}
	registerBuiltins[float32]()
	registerBuiltins[float64]()
}

// Priorities of the built-in strategies. Higher wins.
//
// Vector ranks last: the portable hwy ops it calls return heap-backed vectors,
// so its accumulators never stay in registers and it loses to both scalar
// tiles. It is only used when selected by name.
const (
	priorityVector      = -10
	priorityGeneric     = 0
	priorityRegister4x4 = 10
)

func registerBuiltins[T matrix.Float]() {
	Register[T](GenericName, priorityGeneric, defaultGeneric[T])
	Register[T](Register4x4Name, priorityRegister4x4, func() (Strategy[T], error) {
		s, err := NewRegister4x4[T](DefaultRegister4x4Params[T]())
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	if simdFound {
		Register[T](VectorName, priorityVector, func() (Strategy[T], error) {
			s, err := NewVector[T](ParamsVector[T]())
			if err != nil {
				return nil, err
			}
			return s, nil
		})
	} else {
		klog.V(1).Infof("gemm kernel %q not registered: no wide SIMD unit (%s) or HWY_NO_SIMD set", VectorName, simdISA)
	}
}

func defaultGeneric[T matrix.Float]() (Strategy[T], error) {
	s, err := NewGeneric[T](DefaultGenericParams[T]())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Register a strategy factory for T under name. Registering the same name
// and T again replaces the previous factory.
//
// To be safe, call Register during initialization of a package.
func Register[T matrix.Float](name string, priority int, factory Factory[T]) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = slices.DeleteFunc(registry, func(r registration) bool {
		_, sameType := r.factory.(Factory[T])
		return r.name == name && sameType
	})
	registry = append(registry, registration{name: name, priority: priority, factory: factory})
	// Stable, so equal priorities keep registration order.
	slices.SortStableFunc(registry, func(a, b registration) int { return b.priority - a.priority })
}

// Names returns the registered strategy names, highest priority first.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var names []string
	for _, r := range registry {
		if !slices.Contains(names, r.name) {
			names = append(names, r.name)
		}
	}
	return names
}

// factoriesFor returns the registrations for T, highest priority first.
func factoriesFor[T matrix.Float]() []registration {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var regs []registration
	for _, r := range registry {
		if _, ok := r.factory.(Factory[T]); ok {
			regs = append(regs, r)
		}
	}
	return regs
}

// Lookup builds the strategy registered for T under name.
// It returns ErrUnknownKernel if there is none.
func Lookup[T matrix.Float](name string) (Strategy[T], error) {
	for _, r := range factoriesFor[T]() {
		if r.name == name {
			return r.factory.(Factory[T])()
		}
	}
	var zero T
	return nil, errors.Wrapf(ErrUnknownKernel, "%q for %T (registered: %v)", name, zero, Names())
}

// Best returns the strategy to use for T:
//
//  1. The strategy named by the environment variable GEMM_KERNEL, if not empty.
//  2. Next the strategy named by DefaultKernel, if set.
//  3. The registered strategy with the highest priority whose factory
//     succeeds.
//
// A configured name that isn't registered for T returns ErrUnknownKernel.
//
// Types without registered strategies (named float types) get Generic.
func Best[T matrix.Float]() (Strategy[T], error) {
	name := os.Getenv(GEMM_KERNEL)
	if name == "" {
		name = DefaultKernel
	}
	if name != "" {
		s, err := Lookup[T](name)
		if err != nil {
			return nil, errors.WithMessagef(err, "gemm kernel configuration (%s or DefaultKernel)", GEMM_KERNEL)
		}
		klog.V(1).Infof("gemm kernel %q selected by configuration, %s", s.Name(), s.Params())
		return s, nil
	}

	for _, r := range factoriesFor[T]() {
		s, err := r.factory.(Factory[T])()
		if err != nil {
			klog.V(1).Infof("gemm kernel %q skipped: %v", r.name, err)
			continue
		}
		klog.V(1).Infof("gemm kernel %q selected (simd=%s), %s", s.Name(), simdISA, s.Params())
		return s, nil
	}
	return defaultGeneric[T]()
}

// SIMD returns the name of the vector extension detected on this CPU and
// whether the Vector strategy is enabled for it.
func SIMD() (isa string, enabled bool) {
	return simdISA, simdFound
}
