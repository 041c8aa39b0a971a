// Command seed is the tileseed CLI front end: it pre-populates and
// expires a tiled map cache according to a seed configuration document.
package main

import "github.com/omniscale/tileseed/internal/cmd"

func main() {
	cmd.Execute()
}
