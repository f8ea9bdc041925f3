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

	ogmijson "github.com/blinklabs-io/gogmios/json"
)

type queryFlags struct {
	flagset *flag.FlagSet
	params  string
}

func newQueryFlags() *queryFlags {
	f := &queryFlags{
		flagset: flag.NewFlagSet("query", flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.params,
		"params",
		"",
		"JSON-encoded request params",
	)
	return f
}

func runQuery(g *globalFlags) {
	f := newQueryFlags()
	err := f.flagset.Parse(g.flagset.Args()[1:])
	if err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	if len(f.flagset.Args()) < 1 {
		fmt.Printf("You must specify a method name\n")
		os.Exit(1)
	}
	method := f.flagset.Arg(0)

	var params any
	if f.params != "" {
		params, err = ogmijson.Decode([]byte(f.params))
		if err != nil {
			fmt.Printf("ERROR: could not parse params: %s\n", err)
			os.Exit(1)
		}
	}

	client := createClient(g)
	defer client.Close()

	result, err := client.Ask(context.Background(), method, params)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	resultJson, err := ogmijson.Encode(result)
	if err != nil {
		fmt.Printf("ERROR: could not render result: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", resultJson)
}
