// Package ocr reads dimension labels ("12.5 m", "3'6\"", "450 cm") off plan
// drawings so a scale calibration can be proposed without user input.
//
// Text recognition uses the Tesseract engine through gosseract/v2. Before
// recognition, DetectLabelRegions narrows the raster to strips whose edge
// density and horizontal structure look like printed text; each strip is
// cropped and recognised separately, which keeps Tesseract away from wall
// hatching and door swings.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The default language is English ("eng").
//
// # Parsing
//
// ParseDimension is independent of Tesseract and accepts metric values with
// a unit suffix (m, cm, mm) and imperial values in feet and inches, either
// spelled out ("12 ft") or in prime notation (12'6").
package ocr
