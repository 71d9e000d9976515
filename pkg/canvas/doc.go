// Package canvas implements the interaction model of the tree canvas:
// viewport transforms, grid snapping, selection, hit testing and drag
// gestures that commit pinned node positions.
//
// The package is independent of any toolkit. Front-ends feed it pointer
// events in screen coordinates and read back the viewport and display
// positions:
//
//	ctl := canvas.NewController(store, canvas.WithGrid(canvas.Grid{Size: 50, Enabled: true}))
//	ctl.PointerDown(tree.Point{X: 130, Y: 150})
//	ctl.PointerMove(tree.Point{X: 200, Y: 300})
//	if err := ctl.PointerUp(tree.Point{X: 200, Y: 300}); err != nil {
//	    // the store rejected the move
//	}
package canvas
