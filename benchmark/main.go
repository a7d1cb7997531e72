// Benchmark measuring the cost of the lualocal value layer over raw
// gopher-lua: every chunk runs once straight on a bare state and once
// through the wrapper's load/call/registry pipeline.
//
// Run with: go run main.go
//
// Compute-heavy chunks spend their time inside the interpreter, so the
// wrapper overhead disappears; call-heavy workloads (host callbacks,
// per-call marshaling) show the registry and classification cost.
package main

import (
	"fmt"
	"time"

	"github.com/lualocal/lualocal/vm"
	lua "github.com/yuin/gopher-lua"
)

func main() {
	fmt.Println("=== lualocal vs raw gopher-lua ===")
	fmt.Println()

	// Benchmark 1: Fibonacci (recursive, tests function call overhead)
	benchmarkFibonacci()

	// Benchmark 2: Loop with arithmetic (tests basic operations)
	benchmarkLoop()

	// Benchmark 3: Table operations
	benchmarkTables()

	// Benchmark 4: Host callback round-trips (tests marshaling cost)
	benchmarkCallbacks()
}

func benchmarkFibonacci() {
	fmt.Println("--- Fibonacci(30) recursive ---")

	code := `
		local function fib(n)
			if n < 2 then return n end
			return fib(n-1) + fib(n-2)
		end
		return fib(30)
	`
	runBoth(code)
}

func benchmarkLoop() {
	fmt.Println("--- Loop with arithmetic (10M iterations) ---")

	code := `
		local sum = 0
		for i = 1, 10000000 do
			sum = sum + i * 2 - 1
		end
		return sum
	`
	runBoth(code)
}

func benchmarkTables() {
	fmt.Println("--- Table insert/access (100K operations) ---")

	code := `
		local t = {}
		for i = 1, 100000 do
			t[i] = i * 2
		end
		local sum = 0
		for i = 1, 100000 do
			sum = sum + t[i]
		end
		return sum
	`
	runBoth(code)
}

func benchmarkCallbacks() {
	fmt.Println("--- Host callback round-trips (100K calls) ---")

	code := `
		local sum = 0
		for i = 1, 100000 do
			sum = sum + bump(i)
		end
		return sum
	`

	start := time.Now()
	result := runWrapperWithCallback(code)
	wrapperTime := time.Since(start)
	fmt.Printf("lualocal:   %v (result: %s)\n", wrapperTime, result)

	start = time.Now()
	result = runRawWithCallback(code)
	rawTime := time.Since(start)
	fmt.Printf("gopher-lua: %v (result: %s)\n", rawTime, result)

	printOverhead(wrapperTime, rawTime)
	fmt.Println()
}

func runBoth(code string) {
	start := time.Now()
	result := runWrapper(code)
	wrapperTime := time.Since(start)
	fmt.Printf("lualocal:   %v (result: %s)\n", wrapperTime, result)

	start = time.Now()
	result = runRaw(code)
	rawTime := time.Since(start)
	fmt.Printf("gopher-lua: %v (result: %s)\n", rawTime, result)

	printOverhead(wrapperTime, rawTime)
	fmt.Println()
}

func runWrapper(code string) string {
	engine, err := vm.CreateEngine()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	defer engine.Close()

	chunk, err := engine.LoadString(code)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	defer chunk.Close()

	results, err := chunk.CallMulti()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	if len(results) > 0 {
		defer results[0].Close()
		return fmt.Sprint(results[0].ToInteger())
	}
	return "nil"
}

func runWrapperWithCallback(code string) string {
	engine, err := vm.CreateEngine()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	defer engine.Close()

	bump, err := engine.CreateCallback(func(e *vm.Engine, args []*vm.Value) ([]*vm.Value, error) {
		return []*vm.Value{vm.NewIntegerValue(args[0].ToInteger() + 1)}, nil
	})
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	if err := engine.SetGlobal("bump", bump); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return runChunk(engine, code)
}

func runChunk(engine *vm.Engine, code string) string {
	chunk, err := engine.LoadString(code)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	defer chunk.Close()

	results, err := chunk.CallMulti()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	if len(results) > 0 {
		defer results[0].Close()
		return fmt.Sprint(results[0].ToInteger())
	}
	return "nil"
}

func runRaw(code string) string {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(code); err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	result := L.Get(-1)
	L.Pop(1)

	return result.String()
}

func runRawWithCallback(code string) string {
	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("bump", L.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LNumber(l.CheckNumber(1) + 1))
		return 1
	}))

	if err := L.DoString(code); err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	result := L.Get(-1)
	L.Pop(1)

	return result.String()
}

func printOverhead(wrapperTime, rawTime time.Duration) {
	if wrapperTime > rawTime {
		fmt.Printf("=> wrapper overhead: %.2fx\n", float64(wrapperTime)/float64(rawTime))
	} else {
		fmt.Printf("=> wrapper overhead: none measurable\n")
	}
}
