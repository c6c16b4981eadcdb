// Package manifest loads the YAML task manifests the CLI feeds to the
// engine.
//
// A manifest lists the tasks to run and may override run-config fields
// for that invocation:
//
//	version: "1"
//	run:
//	  max_concurrent_tasks: 4
//	  strict_dependencies: true
//	tasks:
//	  - id: build
//	    role: builder
//	    description: compile the project
//	    estimated_cost: 500ms
//	  - id: test
//	    role: tester
//	    depends_on: [build]
//
// Tasks without an id get a generated uuid. [Manifest.EngineTasks]
// converts the entries to engine task values, and [RunOverrides.Apply]
// overlays the run section onto a resolved configuration.
//
// [Watcher] re-loads the manifest when the file changes on disk, with
// debouncing, for the CLI's watch mode.
package manifest
