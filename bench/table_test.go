package bench

import (
	"testing"

	"github.com/TheBitDrifter/table"
)

func BenchmarkIterTable(b *testing.B) {
	b.StopTimer()
	schema := table.Factory.NewSchema()
	entryIndex := table.Factory.NewEntryIndex()

	posType := table.FactoryNewElementType[Position]()
	velType := table.FactoryNewElementType[Velocity]()
	posAccess := table.FactoryNewAccessor[Position](posType)
	velAccess := table.FactoryNewAccessor[Velocity](velType)

	tbl, err := table.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(posType, velType).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	if _, err := tbl.NewEntries(nPosVel); err != nil {
		b.Fatal(err)
	}
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		for j := 0; j < tbl.Length(); j++ {
			pos := posAccess.Get(j, tbl)
			vel := velAccess.Get(j, tbl)
			pos.X += vel.X
			pos.Y += vel.Y
		}
	}
}
