// Memview renders an assembled word image as a bit raster, one row of 36
// pixels per word, so the shape of a diagnostic image can be eyeballed:
// instruction regions, text blocks and the literal pool all have a
// distinctive texture.
package main

import (
	"bufio"
	"fmt"
	"image/color"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

const bitScale = 4 // screen pixels per bit

type Game struct {
	words []uint64
	img   *ebiten.Image // reused raster, built on first draw
}

func (g *Game) Update() error {
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.img == nil {
		g.img = ebiten.NewImage(36, len(g.words))
		for y, w := range g.words {
			for x := 0; x < 36; x++ {
				if w&(1<<uint(35-x)) != 0 {
					g.img.Set(x, y, color.White)
				}
			}
		}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(bitScale, bitScale)
	screen.DrawImage(g.img, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	rows := len(g.words)
	if rows < 1 {
		rows = 1
	}
	if rows > 256 {
		rows = 256
	}
	return 36 * bitScale, rows * bitScale
}

func main() {
	if len(os.Args) != 2 {
		log.Fatal("usage: memview LISTING")
	}
	words, base, err := readListing(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read listing: %v", err)
	}
	if len(words) == 0 {
		log.Fatal("Listing holds no words")
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(36*bitScale, 512)
	ebiten.SetWindowTitle(fmt.Sprintf("memview %s @%06o", os.Args[1], base))

	if err := ebiten.RunGame(&Game{words: words}); err != nil {
		log.Fatal(err)
	}
}

// readListing reads the octal "address word" pairs macro10 emits and
// returns the words with the base address of the first pair. A trailing
// "start address" line is skipped.
func readListing(path string) ([]uint64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var words []uint64
	base := -1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 || fields[0] == "start" {
			continue
		}
		addr, err := strconv.ParseInt(fields[0], 8, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("bad address %q", fields[0])
		}
		w, err := strconv.ParseUint(fields[1], 8, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("bad word %q", fields[1])
		}
		if base < 0 {
			base = int(addr)
		}
		words = append(words, w)
	}
	if base < 0 {
		base = 0
	}
	return words, base, scanner.Err()
}
