// Package crosswalk resolves ZIP codes to counties using the HUD
// ZIP-COUNTY crosswalk and attaches county unemployment rates to ZIP codes.
//
// A ZIP that spans counties is assigned to its dominant county, the one with
// the largest TOT_RATIO, so every ZIP joins at most one county rate per year.
package crosswalk
