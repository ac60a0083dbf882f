package editor

import "fmt"

func ExampleMarshalConfig() {
	m := NewMap().
		Field("name", NewString("demo")).
		Field("size", NewInteger(3).WithRange(1, 4))
	m.SetConfig(map[string]any{"size": 5, "extra": true})

	out, err := MarshalConfig(m)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(out))
	// Output: {"name":"demo","size":4}
}
