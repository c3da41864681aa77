// Copyright © 2024 Meroxa, Inc.
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

/*
Package cdk implements utilities for implementing an Airbyte destination.

# Getting started

A destination receives the records of a sync on stdin, writes them to a third
party system and acknowledges checkpoints on stdout once all records before
them are durably written. The CDK takes care of the protocol, the memory
budget, batching and checkpoint bookkeeping, so that a destination only needs
to know how to write records.

To implement a destination, start by defining a global variable of type
[Connector], preferably in connector.go at the root of your project to make
it easy to discover.

	var Connector = cdk.Connector{
	    NewSpecification: Specification,  // Specification is my destination's specification
	    NewDestination:   NewDestination, // NewDestination is the constructor for my destination
	}

The main function of the destination binary then only calls [Serve]:

	func main() {
	    cdk.Serve(Connector)
	}

[Serve] understands the commands --spec, --check and --write. The
configuration is passed with --config, the configured catalog with
--catalog.

General advice for implementing destinations:
  - The CDK provides a structured logger that can be retrieved with
    [Logger]. The log level is controlled by the environment variable
    LOG_LEVEL.
  - If you want to add logging to the hot path (i.e. code that is executed
    for every record) you should use the log level "trace".

# Destination

A [Destination] describes its configuration with [Parameter]s, checks a
configuration and opens a [DestinationWriter] for each sync.

Every [Destination] implementation needs to include an
[UnimplementedDestination] to satisfy the interface.

	type Destination struct {
	  cdk.UnimplementedDestination
	}

The constructor should wrap the destination in the default middleware. It
adds parameters that let users limit the rate at which records are loaded.
The configuration is validated against the parameters and defaults are
applied before it reaches Check and Open.

	func NewDestination() cdk.Destination {
	  return cdk.DestinationWithMiddleware(&Destination{}, cdk.DefaultDestinationMiddleware()...)
	}

The [DestinationWriter] sets up the sync, creates a [StreamLoader] per
stream and returns the [LoadStrategy] that decides how records reach the
destination:
  - [DirectLoadStrategy] feeds records one by one into a [DirectLoader]
    until it decides it is done.
  - [InsertLoadStrategy] accumulates records into requests that are
    submitted by a bounded number of executors.
  - [BulkLoadStrategy] writes records into staged objects which are loaded
    by a [BulkLoader] once they are uploaded.

The data flow can be tuned with a [PipelineConfig], the defaults of the
destination are overwritten by environment variables prefixed with CDK_.

# Acceptance tests

The CDK contains acceptance tests that run a destination through the whole
lifecycle with generated records. Call [AcceptanceTest] in a test of your
destination package:

	func TestAcceptance(t *testing.T) {
	    cdk.AcceptanceTest(t, cdk.AcceptanceTestConfig{
	        SpecFactory:        Specification,
	        DestinationFactory: NewDestination,
	        DestinationConfig:  map[string]any{"host": "localhost"},
	    })
	}
*/
package cdk
