// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package broadband

import "errors"

var (
	// ErrInvalidSignal is returned for empty, too short or non-finite traces.
	ErrInvalidSignal = errors.New("invalid signal")
	// ErrInvalidTrial is returned for malformed or out of bounds trial windows.
	ErrInvalidTrial = errors.New("invalid trial")
	// ErrInvalidCategory is returned for stimulus codes outside the protocol.
	ErrInvalidCategory = errors.New("invalid category")
)
