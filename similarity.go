// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import "github.com/TvrtkoSternak/MARS/internal/simtext"

// leafTextSimilarity scores two leaf payload strings (Variable/FunctionName
// names, non-operator Constant literals) via internal/simtext's LCS-ratio
// wrapper around go-difflib.
func leafTextSimilarity(a, b string) float64 {
	return simtext.Ratio(a, b)
}
