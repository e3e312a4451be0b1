// Package model exposes the generation model: one ClassModel per schema class,
// its attributes and relationships bucketed by the class that declares them,
// and the TokenTable shared by the whole library. Builders reside in
// internal/model but return the types re-exported here. Library metadata is
// read from the custom data of the GLOBAL class (libraryName, libraryPath,
// libraryPrefix, tokensPrefix, useExportAPI, libraryTokens and
// skipCodeGeneration). A class may add its own tokens under schemaTokens.
package model
