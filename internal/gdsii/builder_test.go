package gdsii

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild_SimpleBoundary(t *testing.T) {
	data := simpleLibBytes("TOP", [][2]int32{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	doc, stats, warnings, err := Build(context.Background(), data, "t.gds", nil, nil)
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, 1, stats.TotalCells)
	require.Equal(t, 1, stats.TotalPolygons)
	require.Equal(t, []string{"TOP"}, stats.TopCellNames)
	require.Len(t, doc.Cells["TOP"].Polygons[0].Points, 4)
	require.Equal(t, float64(1000), doc.Units.DBUInUser)
}

func TestBuild_DegeneratePolygonDroppedAndCounted(t *testing.T) {
	data := simpleLibBytes("TOP", [][2]int32{{0, 0}, {10, 0}})
	doc, stats, warnings, err := Build(context.Background(), data, "t.gds", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.DegeneratePolygons)
	require.Empty(t, doc.Cells["TOP"].Polygons)

	found := false
	for _, w := range warnings {
		if w.Kind == "DegeneratePolygon" {
			found = true
		}
	}
	require.True(t, found)
}

func TestBuild_ClosingPointDeduped(t *testing.T) {
	data := simpleLibBytes("TOP", [][2]int32{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}})
	doc, _, _, err := Build(context.Background(), data, "t.gds", nil, nil)
	require.NoError(t, err)
	require.Len(t, doc.Cells["TOP"].Polygons[0].Points, 4)
}

func TestBuild_MissingUnitsIsFatal(t *testing.T) {
	g := &gdsBuilder{}
	g.int16s(RecHEADER, 600)
	g.none(RecBGNSTR)
	pts := [][2]int32{{0, 0}, {1, 0}, {1, 1}}
	ints := []int32{}
	for _, p := range pts {
		ints = append(ints, p[0], p[1])
	}
	g.str(RecSTRNAME, "TOP")
	g.none(RecBOUNDARY)
	g.int16s(RecLAYER, 1)
	g.int16s(RecDATATYPE, 0)
	g.int32s(RecXY, ints...)
	g.none(RecENDEL)
	g.none(RecENDSTR)
	g.none(RecENDLIB)

	_, _, _, err := Build(context.Background(), g.bytes(), "t.gds", nil, nil)
	require.Error(t, err)
}

func TestBuild_SrefResolvesTopCells(t *testing.T) {
	g := &gdsBuilder{}
	g.int16s(RecHEADER, 600)
	g.none(RecBGNLIB)
	g.real64s(RecUNITS, 0.001, 1e-9)

	// LEAF cell
	g.none(RecBGNSTR)
	g.str(RecSTRNAME, "LEAF")
	g.none(RecBOUNDARY)
	g.int16s(RecLAYER, 1)
	g.int16s(RecDATATYPE, 0)
	g.int32s(RecXY, 0, 0, 10, 0, 10, 10, 0, 10)
	g.none(RecENDEL)
	g.none(RecENDSTR)

	// TOP cell referencing LEAF
	g.none(RecBGNSTR)
	g.str(RecSTRNAME, "TOP")
	g.none(RecSREF)
	g.str(RecSNAME, "LEAF")
	g.int32s(RecXY, 100, 200)
	g.none(RecENDEL)
	g.none(RecENDSTR)
	g.none(RecENDLIB)

	doc, stats, _, err := Build(context.Background(), g.bytes(), "t.gds", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalCells)
	require.ElementsMatch(t, []string{"TOP"}, doc.TopCells)
	require.Len(t, doc.Cells["TOP"].Refs, 1)
	require.Equal(t, "LEAF", doc.Cells["TOP"].Refs[0].Target)
	require.Equal(t, int64(100), doc.Cells["TOP"].Refs[0].X)
}

func TestBuild_ArefExpandsToGrid(t *testing.T) {
	g := &gdsBuilder{}
	g.int16s(RecHEADER, 600)
	g.none(RecBGNLIB)
	g.real64s(RecUNITS, 0.001, 1e-9)

	g.none(RecBGNSTR)
	g.str(RecSTRNAME, "LEAF")
	g.none(RecBOUNDARY)
	g.int16s(RecLAYER, 1)
	g.int16s(RecDATATYPE, 0)
	g.int32s(RecXY, 0, 0, 1, 0, 1, 1, 0, 1)
	g.none(RecENDEL)
	g.none(RecENDSTR)

	g.none(RecBGNSTR)
	g.str(RecSTRNAME, "TOP")
	g.none(RecAREF)
	g.str(RecSNAME, "LEAF")
	g.int16s(RecCOLROW, 2, 3) // rows=2, cols=3
	// AREF XY: origin, col-end (3 cols * stepX=10), row-end (2 rows * stepY=20)
	g.int32s(RecXY, 0, 0, 30, 0, 0, 40)
	g.none(RecENDEL)
	g.none(RecENDSTR)
	g.none(RecENDLIB)

	doc, _, _, err := Build(context.Background(), g.bytes(), "t.gds", nil, nil)
	require.NoError(t, err)
	ref := doc.Cells["TOP"].Refs[0]
	require.NotNil(t, ref.Array)
	require.Equal(t, 2, ref.Array.Rows)
	require.Equal(t, 3, ref.Array.Cols)
	require.Equal(t, int64(10), ref.Array.StepX)
	require.Equal(t, int64(20), ref.Array.StepY)
}

func TestBuild_CycleDetected(t *testing.T) {
	g := &gdsBuilder{}
	g.int16s(RecHEADER, 600)
	g.none(RecBGNLIB)
	g.real64s(RecUNITS, 0.001, 1e-9)

	g.none(RecBGNSTR)
	g.str(RecSTRNAME, "A")
	g.none(RecSREF)
	g.str(RecSNAME, "B")
	g.int32s(RecXY, 0, 0)
	g.none(RecENDEL)
	g.none(RecENDSTR)

	g.none(RecBGNSTR)
	g.str(RecSTRNAME, "B")
	g.none(RecSREF)
	g.str(RecSNAME, "A")
	g.int32s(RecXY, 0, 0)
	g.none(RecENDEL)
	g.none(RecENDSTR)
	g.none(RecENDLIB)

	_, _, _, err := Build(context.Background(), g.bytes(), "t.gds", nil, nil)
	require.Error(t, err)
}

func TestBuild_ContextCancellation(t *testing.T) {
	data := simpleLibBytes("TOP", [][2]int32{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := Build(ctx, data, "t.gds", nil, nil)
	require.Error(t, err)
}

func TestBuild_UnknownRecordCountedNotFatal(t *testing.T) {
	g := &gdsBuilder{}
	g.int16s(RecHEADER, 600)
	g.none(RecBGNLIB)
	g.none(RecordType(0x7E)) // unrecognized record type, still valid wire format
	g.real64s(RecUNITS, 0.001, 1e-9)
	g.none(RecBGNSTR)
	g.str(RecSTRNAME, "TOP")
	g.none(RecENDSTR)
	g.none(RecENDLIB)

	_, stats, warnings, err := Build(context.Background(), g.bytes(), "t.gds", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnknownRecords)
	found := false
	for _, w := range warnings {
		if w.Kind == "UnknownRecord" {
			found = true
		}
	}
	require.True(t, found)
}
