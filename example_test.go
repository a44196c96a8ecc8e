package rangego_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hupe1980/rangego"
	"github.com/hupe1980/rangego/pointcloud"
)

func Example() {
	ds, err := pointcloud.Parse(strings.NewReader("0,0,0\n1,0,0\n5,0,0\n0,1,0\n"))
	if err != nil {
		log.Fatal(err)
	}

	eng, err := rangego.New(ds, func(o *rangego.Options) {
		o.Radius = 1.5
		o.K = 4
		o.Order = rangego.OrderIndex
	})
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	rs, err := eng.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(rs.Neighbors(0))
	// Output:
	// [1 3]
}

func Example_verify() {
	ds, err := pointcloud.Parse(strings.NewReader("0,0,0\n1,0,0\n0,1,0\n"))
	if err != nil {
		log.Fatal(err)
	}

	eng, err := rangego.New(ds, func(o *rangego.Options) {
		o.Radius = 2
		o.K = 2
	})
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	rs, err := eng.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	stats, err := eng.Verify(rs)
	if err != nil {
		log.Fatal(err)
	}

	if err := stats.Report(os.Stdout); err != nil {
		log.Fatal(err)
	}
	// Output:
	// Sanity check done.
	// Avg neighbor/query: 2
	// Avg wrong neighbor/query: 0
}
