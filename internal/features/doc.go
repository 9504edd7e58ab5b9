// Package features turns detection candidates into typed architectural
// features: walls with orientation and measured thickness, classified
// windows, swing or line doors, and rooms segmented from the wall layout.
//
// Features are values. Nothing in this package mutates a FeatureSet after
// returning it; unit conversion lives in package scale and produces copies.
package features
