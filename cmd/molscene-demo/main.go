// A scripted in-process session against the scene engine: loads two
// molecules, takes a distance measurement, changes settings and walks the
// undo/redo timeline. Useful as a smoke check and as API documentation.
package main

import (
	"fmt"

	"github.com/molscene/molscene/internal/scene"
	"github.com/molscene/molscene/pkg/client"
)

func main() {
	store := scene.NewStore(scene.DefaultPolicy())

	water := client.NewMolecule("water").
		Atom("O", 0, 0, 0).
		Atom("H", 0.96, 0, 0).
		Atom("H", -0.24, 0.93, 0).
		Build()

	methane := client.NewMolecule("methane").
		Atom("C", 0, 0, 0).
		Atom("H", 0.63, 0.63, 0.63).
		Atom("H", -0.63, -0.63, 0.63).
		Atom("H", -0.63, 0.63, -0.63).
		Atom("H", 0.63, -0.63, -0.63).
		Build()

	waterID, err := store.LoadStructure(water, scene.LoadReplace)
	if err != nil {
		panic(err)
	}
	methaneID, err := store.LoadStructure(methane, scene.LoadAdd)
	if err != nil {
		panic(err)
	}
	fmt.Printf("loaded %d structures, active=%s\n", store.StructureCount(), store.ActiveStructure())

	for _, rd := range store.RenderData() {
		fmt.Printf("  %s (%s): rep=%s offset=(%.2f, %.2f, %.2f) bonds=%d\n",
			rd.Molecule.Name, rd.ID, rd.Representation, rd.Offset.X, rd.Offset.Y, rd.Offset.Z, len(rd.Molecule.Bonds))
	}

	// O-H distance in water.
	store.SetMeasurementMode(scene.MeasureDistance)
	store.SelectAtom(waterID, 0)
	store.SelectAtom(waterID, 1)
	store.SetMeasurementMode("")
	for _, m := range store.Measurements() {
		fmt.Printf("measurement: %s = %.3f\n", m.Kind, m.Value)
	}

	store.SetStructureRepresentation(methaneID, scene.RepSpacefill)
	store.SetStructureColorScheme(methaneID, scene.ColorRainbow)

	fmt.Printf("before undo: rep=%s canUndo=%t\n", mustStructure(store, methaneID).Representation, store.CanUndo())
	store.Undo()
	store.Undo()
	fmt.Printf("after 2 undos: rep=%s scheme=%s\n",
		mustStructure(store, methaneID).Representation, mustStructure(store, methaneID).ColorScheme)
	store.Redo()
	store.Redo()
	fmt.Printf("after 2 redos: rep=%s scheme=%s\n",
		mustStructure(store, methaneID).Representation, mustStructure(store, methaneID).ColorScheme)

	store.RemoveStructure(waterID)
	fmt.Printf("after remove: count=%d active=%s\n", store.StructureCount(), store.ActiveStructure())
	store.Undo()
	fmt.Printf("after undo of remove: count=%d active=%s\n", store.StructureCount(), store.ActiveStructure())
}

func mustStructure(store *scene.Store, id scene.StructureID) *scene.Structure {
	st, ok := store.Structure(id)
	if !ok {
		panic("structure disappeared: " + id)
	}
	return st
}
