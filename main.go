package main

import (
	"fmt"

	vmlib "github.com/lualocal/lualocal/vm"
	"github.com/lualocal/lualocal/vmutils"
)

func main() {
	engine, err := vmlib.CreateEngine()
	if err != nil {
		fmt.Println("Error creating engine:", err)
		return
	}
	defer engine.Close() // Ensure we close the engine when done
	fmt.Println("Engine created successfully:", engine)

	// Example of creating an engine string
	str, err := engine.CreateString("Hello, script!")
	if err != nil {
		fmt.Println("Error creating string:", err)
		return
	}
	fmt.Println("String created successfully:", str)
	fmt.Println("String contents:", str.ToString())
	fmt.Println("String length:", str.Length())
	str.Close() // Clean up the string when done
	fmt.Println("String contents after close (should be empty):", str.ToString())

	// Detached values exist without any engine
	detached := vmlib.NewStringValue("I live on the host side")
	fmt.Println("Detached string:", detached.ToString(), "attached:", detached.IsAttached())
	detached.Close()

	// Example of creating a table
	tab, err := engine.CreateTable()
	if err != nil {
		panic(fmt.Sprintf("Failed to create table: %v", err))
	}

	// Insert some values into the table
	err = tab.TableSet(vmlib.NewStringValue("key1"), vmlib.NewStringValue("value1"))
	if err != nil {
		panic(fmt.Sprintf("Failed to set value in table: %v", err))
	}
	err = tab.TableSet(vmlib.NewStringValue("key2"), vmlib.NewIntegerValue(42))
	if err != nil {
		panic(fmt.Sprintf("Failed to set value in table: %v", err))
	}
	err = tab.TableSetInt(1, vmlib.NewNumberValue(1.5))
	if err != nil {
		panic(fmt.Sprintf("Failed to set value in table: %v", err))
	}

	err = tab.TableForEach(func(key, value *vmlib.Value) error {
		if value.IsString() {
			fmt.Println("Value is a string:", value.ToString())
		} else if value.IsInteger() {
			fmt.Println("Value is an integer:", value.ToInteger())
		} else if value.IsNumber() {
			fmt.Println("Value is a number:", value.ToNumber())
		} else {
			return fmt.Errorf("unexpected value type: %s", value.Type().String())
		}
		fmt.Println("Key:", key, "Value:", value)
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to iterate table: %v", err))
	}

	err = tab.TableForEach(func(key, value *vmlib.Value) error {
		panic("test panic")
	})
	if err == nil {
		panic("Expected error from TableForEach, got nil")
	} else if err.Error() != "panic in ForEach callback: test panic" {
		panic("Expected 'panic in ForEach callback: test panic' error, got: " + err.Error())
	}
	fmt.Println("ForEach callback error:", err)

	// Element handles: a reference to "element key of table t"
	el := vmutils.Must(tab.Elem(vmlib.NewStringValue("key2")))
	fmt.Println("Element value:", vmutils.Must(el.Value()))
	vmutils.MustOk(el.Assign(vmlib.NewIntegerValue(43)))
	fmt.Println("Element value after assign:", vmutils.Must(el.Value()))
	el.Close()

	// Cloning duplicates the handle, not the object
	tabClone := tab.Clone()
	if !tabClone.Equals(tab) {
		panic("Clone should pin the same table")
	}
	tabClone.Close()

	// Run a chunk and call one of its functions
	err = engine.DoString(`
		function greet(name)
			return "Hello, " .. name .. "!"
		end

		function stats(a, b)
			return a + b, a * b
		end
	`)
	if err != nil {
		panic(fmt.Sprintf("Failed to run chunk: %v", err))
	}

	greet := vmutils.Must(engine.Global("greet"))
	greeting := vmutils.Must(greet.Call(vmlib.NewStringValue("world")))
	fmt.Println("greet(world) =", greeting.ToString())

	// Multiple results, both conventions
	stats := vmutils.Must(engine.Global("stats"))
	boxed := vmutils.Must(stats.Call(vmlib.NewIntegerValue(3), vmlib.NewIntegerValue(4)))
	fmt.Println("stats(3, 4) boxed:",
		vmutils.Must(boxed.TableGetInt(0)).ToInteger(),
		vmutils.Must(boxed.TableGetInt(1)).ToInteger())

	results := vmutils.Must(stats.CallMulti(vmlib.NewIntegerValue(3), vmlib.NewIntegerValue(4)))
	fmt.Println("stats(3, 4) multi:", results[0].ToInteger(), results[1].ToInteger())

	// A script error leaves the engine usable
	err = engine.DoString(`error("deliberate failure")`)
	fmt.Println("Script error (expected):", err)
	vmutils.MustOk(engine.DoString(`survived = true`))
	fmt.Println("Engine survived:", vmutils.Must(engine.Global("survived")).ToBoolean())

	// Host callbacks
	double := vmutils.Must(engine.CreateCallback(func(e *vmlib.Engine, args []*vmlib.Value) ([]*vmlib.Value, error) {
		vs := vmutils.NewValueSet(args)
		n, err := vs.IntegerAt(0)
		if err != nil {
			return nil, err
		}
		return []*vmlib.Value{vmlib.NewIntegerValue(n * 2)}, nil
	}))
	vmutils.MustOk(engine.SetGlobal("double", double))
	vmutils.MustOk(engine.DoString(`doubled = double(21)`))
	fmt.Println("double(21) =", vmutils.Must(engine.Global("doubled")).ToInteger())

	// Typed userdata
	type account struct{ balance int64 }
	tud := vmutils.NewTypedUserData(&account{balance: 100})
	tud.SetTypeName("account")
	tud.AddMethod("deposit", func(a *account, _ *vmlib.Engine, args []*vmlib.Value) ([]*vmlib.Value, error) {
		vs := vmutils.NewValueSet(args)
		amount, err := vs.IntegerAt(0)
		if err != nil {
			return nil, err
		}
		a.balance += amount
		return []*vmlib.Value{vmlib.NewIntegerValue(a.balance)}, nil
	})
	acct := vmutils.Must(tud.Create(engine))
	vmutils.MustOk(engine.SetGlobal("acct", acct))
	vmutils.MustOk(engine.DoString(`balance = acct:deposit(50)`))
	fmt.Println("Balance after deposit:", vmutils.Must(engine.Global("balance")).ToInteger())

	fmt.Println("Demo finished")
}
