// Package compiler drives `javac` for the main and test source sets of a
// project.
//
// Source roots follow the conventional layout: src/main/java and
// src/test/java, plus src/main/groovy and src/test/groovy when the groovy
// plugin is enabled. Only Java sources are compiled; Groovy sources found in
// the groovy roots are reported as a warning. Classes and generated sources
// go below the build directory of the workspace:
//
//	build/classes/java/main
//	build/classes/java/test
//	build/generated/sources/annotationProcessor/java/main
//	build/generated/sources/annotationProcessor/java/test
package compiler
