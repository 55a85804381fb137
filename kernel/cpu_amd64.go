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

//go:build amd64

package kernel

import "golang.org/x/sys/cpu"

// probeSIMD reports whether the CPU has the fused multiply-add vector units
// the Vector strategy is tuned for (AVX2 + FMA), and names them.
func probeSIMD() (ok bool, isa string) {
	switch {
	case cpu.X86.HasAVX512F && cpu.X86.HasFMA:
		return true, "avx512"
	case cpu.X86.HasAVX2 && cpu.X86.HasFMA:
		return true, "avx2"
	}
	return false, "sse2"
}
