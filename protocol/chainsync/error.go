// Copyright 2025 Blink Labs Software
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

package chainsync

import "errors"

// ErrInvalidArgument is returned (wrapped) when a follow request is rejected
// before any network interaction
var ErrInvalidArgument = errors.New("invalid argument")

// ErrFollowDone is returned by Next after a follower with a finite block
// count has yielded all of its events
var ErrFollowDone = errors.New("chain follow complete")

// ErrFollowStopped is returned by Next after the follower has been stopped
var ErrFollowStopped = errors.New("chain follow stopped")
