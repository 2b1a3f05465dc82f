// Package filter implements the boolean predicate trees used by table views.
//
// A tree is built from leaves (*Leaf), which compare one record field against
// a parameter using a comparator looked up in a Registry, and composites
// (*And, *Or), which fold their children. Trees serialise to a Document, the
// JSON form stored with a view:
//
//	{"type":"and","children":[
//	  {"type":"number","id":"...","key":"capacity","funcName":"gte","parameter":1000000}
//	]}
//
// Evaluation never fails: a leaf whose comparator is not registered simply
// does not match. Use Evaluator.Check to surface such leaves to the user.
package filter
