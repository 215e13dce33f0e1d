package main

import (
	"log"
	"os"

	"github.com/Garsondee/elevation-ruler/internal/app"
	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"github.com/Garsondee/elevation-ruler/internal/settings"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	log.SetPrefix("ruler: ")
	s, err := settings.Load()
	if err != nil {
		log.Fatal(err)
	}
	events := eventlog.New(os.Getenv("ELEVATION_RULER_VERBOSE") != "")
	sc := scene.Demo(scene.WithLog(events))

	g, err := app.New(sc, s, events)
	if err != nil {
		log.Fatal(err)
	}
	w, h := g.Size()
	ebiten.SetWindowTitle("Elevation Ruler")
	ebiten.SetWindowSize(w, h)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
