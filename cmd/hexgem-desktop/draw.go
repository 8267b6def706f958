package main

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/robalobadob/hexgem/internal/game"
)

var (
	colBackground = color.RGBA{0x1a, 0x1a, 0x2e, 0xff}
	colSelected   = color.RGBA{0x4f, 0xc3, 0xf7, 0xff}
	colSelEdge    = color.RGBA{0x02, 0x88, 0xd1, 0xff}
	colValid      = color.RGBA{0x4c, 0xaf, 0x50, 0x60}
	colInvalid    = color.RGBA{0xf4, 0x43, 0x36, 0x40}
)

// whitePixel is the source texture for filled triangles, created on first draw.
var whitePixel *ebiten.Image

func solidSource() *ebiten.Image {
	if whitePixel == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whitePixel = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whitePixel
}

// tileColors returns the fill and edge colour of a tile.
func tileColors(v game.TileView) (fill, edge color.RGBA) {
	if v.Selected {
		return colSelected, colSelEdge
	}
	switch v.Kind {
	case game.KindBomb:
		return color.RGBA{0xff, 0x6b, 0x35, 0xff}, color.RGBA{0xff, 0xab, 0x00, 0xff}
	case game.KindMultiply3x:
		return color.RGBA{0xe0, 0x40, 0xfb, 0xff}, color.RGBA{0xea, 0x80, 0xfc, 0xff}
	case game.KindMultiply2x:
		return color.RGBA{0x69, 0xf0, 0xae, 0xff}, color.RGBA{0xb9, 0xf6, 0xca, 0xff}
	}
	switch {
	case v.Points >= 8:
		return color.RGBA{0xff, 0xe0, 0xe6, 0xff}, color.RGBA{0xff, 0xc4, 0xd0, 0xff}
	case v.Points >= 5:
		return color.RGBA{0xff, 0xf3, 0xe0, 0xff}, color.RGBA{0xff, 0xe0, 0xb2, 0xff}
	case v.Points >= 3:
		return color.RGBA{0xe0, 0xf2, 0xf1, 0xff}, color.RGBA{0xb2, 0xdf, 0xdb, 0xff}
	default:
		return color.RGBA{0xe6, 0xe6, 0xe6, 0xff}, color.RGBA{0xff, 0xff, 0xff, 0xff}
	}
}

// hexCorners returns the six corners of a pointy hexagon.
func hexCorners(c game.Vec, r, angle float64) [6]game.Vec {
	var out [6]game.Vec
	for i := range out {
		a := angle + math.Pi/6 + float64(i)*math.Pi/3
		out[i] = game.Vec{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return out
}

func fillHex(dst *ebiten.Image, corners [6]game.Vec, clr color.RGBA) {
	var p vector.Path
	p.MoveTo(float32(corners[0].X), float32(corners[0].Y))
	for _, c := range corners[1:] {
		p.LineTo(float32(c.X), float32(c.Y))
	}
	p.Close()

	vs, is := p.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(clr.R) / 0xff
		vs[i].ColorG = float32(clr.G) / 0xff
		vs[i].ColorB = float32(clr.B) / 0xff
		vs[i].ColorA = float32(clr.A) / 0xff
	}
	dst.DrawTriangles(vs, is, solidSource(), &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func strokeHex(dst *ebiten.Image, corners [6]game.Vec, width float32, clr color.Color) {
	for i, c := range corners {
		n := corners[(i+1)%len(corners)]
		vector.StrokeLine(dst, float32(c.X), float32(c.Y), float32(n.X), float32(n.Y), width, clr, true)
	}
}

func (a *app) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	now := a.session.Now()
	snap := a.session.Snapshot(now)

	board := screen.SubImage(image.Rect(0, hudHeight, int(snap.Width), hudHeight+int(snap.Height))).(*ebiten.Image)
	drawWordBanner(board, snap)

	// Translate board coordinates onto the sub-image.
	off := game.Vec{Y: hudHeight}
	byID := make(map[game.TileID]game.TileView, len(snap.Tiles))
	for _, v := range snap.Tiles {
		byID[v.ID] = v
		drawTile(board, v, snap.Radius, off)
	}
	for i := 1; i < len(snap.Chain); i++ {
		p, q := byID[snap.Chain[i-1]].Pos.Add(off), byID[snap.Chain[i]].Pos.Add(off)
		vector.StrokeLine(board, float32(p.X), float32(p.Y), float32(q.X), float32(q.Y), 3, colSelEdge, true)
	}

	drawHUD(screen, snap.Stats, a.saves.Best())
	if a.flash != "" && now.Before(a.flashUntil) {
		ebitenutil.DebugPrintAt(screen, a.flash, 8, hudHeight-18)
	}
	if snap.Stats.Over {
		ebitenutil.DebugPrintAt(screen, "ROUND OVER - press R", int(snap.Width)/2-60, hudHeight+int(snap.Height)/2)
	}
}

func drawTile(dst *ebiten.Image, v game.TileView, radius float64, off game.Vec) {
	r := radius
	if v.Pop >= 0 {
		r *= 1 - v.Pop
		if r <= 1 {
			return
		}
	}
	c := v.Pos.Add(off)
	corners := hexCorners(c, r-2, v.Angle)
	fill, edge := tileColors(v)
	fillHex(dst, corners, fill)
	strokeHex(dst, corners, 2, edge)

	if v.Kind == game.KindBomb && v.Fuse > 0 {
		// The ring reddens as the fuse burns.
		ring := color.RGBA{0xff, uint8(0xab * (1 - v.Fuse)), 0, 0xff}
		vector.StrokeCircle(dst, float32(c.X), float32(c.Y), float32(r*0.75), 3, ring, true)
	}

	label := v.Letter
	switch v.Kind {
	case game.KindBomb:
		label = "*"
	case game.KindMultiply2x:
		label = "x2"
	case game.KindMultiply3x:
		label = "x3"
	}
	ebitenutil.DebugPrintAt(dst, label, int(c.X)-3*len(label), int(c.Y)-8)
	if v.Kind == game.KindNormal {
		ebitenutil.DebugPrintAt(dst, fmt.Sprint(v.Points), int(c.X)+int(r/3), int(c.Y)+int(r/4))
	}
}

func drawWordBanner(dst *ebiten.Image, snap game.Snapshot) {
	if snap.Word == "" {
		return
	}
	bg := colInvalid
	if snap.Valid {
		bg = colValid
	}
	y := float32(hudHeight + 8)
	vector.DrawFilledRect(dst, 8, y, float32(snap.Width)-16, 24, bg, false)
	text := snap.Word
	if snap.Valid {
		text = fmt.Sprintf("%s  (%d)", snap.Word, snap.Potential)
	}
	ebitenutil.DebugPrintAt(dst, text, 16, int(y)+4)
}

func drawHUD(dst *ebiten.Image, st game.Stats, best int) {
	ebitenutil.DebugPrintAt(dst, fmt.Sprintf("SCORE %d   LEVEL %d   BEST %d", st.Score, st.Level, best), 8, 6)
	line := fmt.Sprintf("WORDS %d", st.WordsFound)
	if st.TopWord != "" {
		line += fmt.Sprintf("   TOP %s (%d)", st.TopWord, st.TopWordPoints)
	}
	ebitenutil.DebugPrintAt(dst, line, 8, 22)
	if st.Combo > 1 && st.ComboTimeLeftMs > 0 {
		ebitenutil.DebugPrintAt(dst, fmt.Sprintf("COMBO x%d  %.1fs", st.Combo, float64(st.ComboTimeLeftMs)/1000), 8, 38)
	}
}
