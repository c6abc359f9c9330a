// Package postproc transforms downloaded files with ffmpeg: merging the
// constituents of composite formats, converting containers, extracting audio
// tracks and repairing known container defects. Processors declare which
// formats they apply to; Chain runs the applicable ones in order.
package postproc
