// Package fade models light colours and checks in-flight colour transitions.
//
// A light asked to fade from one colour to another over a duration moves
// linearly through colour space. When the controller later wants to undo that
// fade it first has to know whether the light is still on the path it was
// sent on, or whether somebody (a wall switch, an app) changed it meanwhile.
// MatchesFade answers that question.
//
// Everything in this package is pure and safe for concurrent use.
package fade
