// Example demonstrating host-script interop with lualocal
//
// Flow: Go -> script -> Go function -> script -> Go (result)
package main

import (
	"fmt"
	"log"

	"github.com/lualocal/lualocal/vm"
)

func main() {
	// Create a new engine
	engine, err := vm.CreateEngine()
	if err != nil {
		log.Fatal("Failed to create engine:", err)
	}
	defer engine.Close()

	// Create a Go function that appends strings
	// This will be called from the script
	appendFunc, err := engine.CreateCallback(func(cb *vm.Engine, args []*vm.Value) ([]*vm.Value, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("append requires 2 string arguments")
		}

		if !args[0].IsString() {
			return nil, fmt.Errorf("argument 1 must be a string, got %s", args[0].Type())
		}
		if !args[1].IsString() {
			return nil, fmt.Errorf("argument 2 must be a string, got %s", args[1].Type())
		}

		// Append the strings in Go
		result := args[0].ToString() + args[1].ToString()
		fmt.Printf("[Go] Appending '%s' + '%s' = '%s'\n", args[0].ToString(), args[1].ToString(), result)

		// Return the result back to the script
		return []*vm.Value{vm.NewStringValue(result)}, nil
	})
	if err != nil {
		log.Fatal("Failed to create Go function:", err)
	}

	// Set the function as a global in the script environment
	err = engine.SetGlobal("append_strings", appendFunc)
	if err != nil {
		log.Fatal("Failed to set global:", err)
	}

	// Script code that:
	// 1. Calls the Go function to append strings
	// 2. Calls it again with the result
	// 3. Returns the final result back to Go
	code := `
		local first = append_strings("Hello, ", "script")
		local second = append_strings(first, " from ")
		local final = append_strings(second, "Go!")
		return final
	`

	// Compile the chunk without running it
	chunk, err := engine.LoadString(code)
	if err != nil {
		log.Fatal("Failed to load chunk:", err)
	}
	defer chunk.Close()

	fmt.Println("[Go] Executing script code...")
	fmt.Println()

	// Call the chunk
	results, err := chunk.CallMulti()
	if err != nil {
		log.Fatal("Failed to call chunk:", err)
	}

	// Get the result back in Go
	if len(results) > 0 && results[0].IsString() {
		fmt.Println()
		fmt.Printf("[Go] Final result from the script: '%s'\n", results[0].ToString())
	}

	// Clean up results
	for _, r := range results {
		r.Close()
	}
}
