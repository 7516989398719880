// Package language normalizes the language codes used for sentence
// translation.
//
// Configuration and flags accept ISO 639-1 and ISO 639-2 codes, English
// language names, and regional variants such as "en-us" or "zh_hant".
// Normalize folds all of these into the uppercase form translation
// providers expect ("EN", "EN-US", "ZH-HANT").
package language
