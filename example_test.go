package conceptspace_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/conceptspace"
	"github.com/hupe1980/conceptspace/adapt"
	"github.com/hupe1980/conceptspace/dimension"
	"github.com/hupe1980/conceptspace/model"
	"github.com/hupe1980/conceptspace/region"
)

func newColorSpace() *conceptspace.Space {
	space, err := conceptspace.New([]dimension.Dimension{
		dimension.Circular("hue", 0, 360).WithUnit("deg"),
		dimension.Linear("saturation", 0, 1),
		dimension.Linear("lightness", 0, 1),
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, p := range []model.Point{
		model.NewPoint("red", 0, 0.8, 0.5),
		model.NewPoint("crimson", 350, 0.8, 0.45),
		model.NewPoint("orange", 30, 0.9, 0.5),
		model.NewPoint("teal", 180, 0.6, 0.4),
	} {
		if _, err := space.Insert(ctx, p); err != nil {
			log.Fatal(err)
		}
	}
	return space
}

// Example_distance shows that circular dimensions wrap around.
func Example_distance() {
	space := newColorSpace()

	d, err := space.Distance("red", "crimson")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%.4f\n", d)
	// Output: 10.0001
}

// Example_kNearest demonstrates a nearest-neighbor query.
func Example_kNearest() {
	space := newColorSpace()

	neighbors, err := space.KNearest(context.Background(), []float64{355, 0.8, 0.5}, 2)
	if err != nil {
		log.Fatal(err)
	}

	for _, n := range neighbors {
		fmt.Printf("%s %.2f\n", n.ID, n.Distance)
	}
	// Output:
	// red 5.00
	// crimson 5.00
}

// Example_regions defines a region and tests membership.
func Example_regions() {
	ctx := context.Background()
	space := newColorSpace()

	reds, err := space.DefineRegion(ctx, []model.ConceptID{"red", "crimson", "orange"}, region.Spec{Name: "warm", Kind: region.KindCell})
	if err != nil {
		log.Fatal(err)
	}

	inside, _ := space.TestMembership(ctx, reds, []float64{10, 0.83, 0.49})
	outside, _ := space.TestMembership(ctx, reds, []float64{180, 0.6, 0.4})

	fmt.Println(inside.IsMember, outside.IsMember)
	// Output: true false
}

// Example_adaptWeights lowers the hue weight after feedback that red and
// crimson are nearly identical.
func Example_adaptWeights() {
	ctx := context.Background()
	space := newColorSpace()

	fb, err := space.Feedback("red", "crimson", 0.99)
	if err != nil {
		log.Fatal(err)
	}

	before := space.Weights().At(0)
	after, err := space.AdaptWeights(ctx, []adapt.Feedback{fb}, adapt.Params{LearningRate: 0.001, Prior: 1})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(after.At(0) < before)
	// Output: true
}
