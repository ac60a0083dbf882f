package bind

import (
	"fmt"

	"github.com/goliatone/go-typeconf/registry"
)

func ExampleBuild() {
	reg := registry.New()
	registry.MustRegister[Shape, Circle](reg)

	scene, err := Build[Scene](New(reg), map[string]any{
		"title":  "demo",
		"shapes": []any{map[string]any{"className": "Circle", "r": 2.0}},
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(scene.Title, scene.Mode, len(scene.Shapes), scene.Shapes[0].Area())
	// Output: demo fast 1 12
}
