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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	ogmijson "github.com/blinklabs-io/gogmios/json"
	"github.com/blinklabs-io/gogmios/protocol/chainsync"
	"github.com/blinklabs-io/gogmios/protocol/common"
)

type syncFlags struct {
	flagset   *flag.FlagSet
	count     int
	origin    bool
	intersect string
}

func newSyncFlags() *syncFlags {
	f := &syncFlags{
		flagset: flag.NewFlagSet("sync", flag.ExitOnError),
	}
	f.flagset.IntVar(
		&f.count,
		"count",
		0,
		"number of blocks to fetch (0 for unbounded)",
	)
	f.flagset.BoolVar(
		&f.origin,
		"origin",
		false,
		"start from chain origin (defaults to current tip)",
	)
	f.flagset.StringVar(
		&f.intersect,
		"intersect",
		"",
		"intersect point in slot.hash format",
	)
	return f
}

func runSync(g *globalFlags) {
	f := newSyncFlags()
	err := f.flagset.Parse(g.flagset.Args()[1:])
	if err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}

	var followOpts []chainsync.FollowOptionFunc
	if f.origin {
		followOpts = append(
			followOpts,
			chainsync.WithIntersectPoints(common.NewPointOrigin()),
		)
	} else if f.intersect != "" {
		slotStr, hash, found := strings.Cut(f.intersect, ".")
		if !found {
			fmt.Printf("ERROR: intersect must be in slot.hash format\n")
			os.Exit(1)
		}
		slot, err := strconv.ParseUint(slotStr, 10, 64)
		if err != nil {
			fmt.Printf("ERROR: could not parse intersect slot: %s\n", err)
			os.Exit(1)
		}
		followOpts = append(
			followOpts,
			chainsync.WithIntersectPoints(common.NewPoint(slot, hash)),
		)
	}
	if f.count > 0 {
		followOpts = append(followOpts, chainsync.WithBlockCount(f.count))
	}

	client := createClient(g)
	defer client.Close()

	ctx := context.Background()
	follower, err := client.ChainSync().Follow(ctx, followOpts...)
	if err != nil {
		fmt.Printf("ERROR: could not start follower: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf(
		"Following chain from %+v\n",
		follower.Intersection(),
	)
	for {
		event, err := follower.Next(ctx)
		if err != nil {
			if err == chainsync.ErrFollowDone {
				break
			}
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		switch event.Direction {
		case chainsync.DirectionForward:
			blockJson, err := ogmijson.Encode(event.Block)
			if err != nil {
				fmt.Printf("ERROR: could not render block: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("roll forward: %s\n", blockJson)
		case chainsync.DirectionBackward:
			fmt.Printf(
				"roll backward: slot %d, id %s\n",
				event.Point.Slot,
				event.Point.ID,
			)
		}
	}
}
