package packets

import "github.com/roxxel/obsidian/internal/nbt"

// DefaultDimensionType returns the per-dimension NBT compound sent
// both inside the dimension codec and as JoinGame's own Dimension
// field, trimmed to the overworld's vanilla defaults.
func DefaultDimensionType() *nbt.Compound {
	d := nbt.NewCompound()
	d.Set("piglin_safe", int8(0))
	d.Set("natural", int8(1))
	d.Set("ambient_light", float32(0))
	d.Set("infiniburn", "minecraft:infiniburn_overworld")
	d.Set("respawn_anchor_works", int8(0))
	d.Set("has_skylight", int8(1))
	d.Set("bed_works", int8(1))
	d.Set("effects", "minecraft:overworld")
	d.Set("has_raids", int8(1))
	d.Set("logical_height", int32(256))
	d.Set("coordinate_scale", float32(1))
	d.Set("ultrawarm", int8(0))
	d.Set("has_ceiling", int8(0))
	return d
}

// DefaultBiome returns a single minimal plains biome entry, enough to
// populate the dimension codec's worldgen/biome registry so JoinGame
// encodes a structurally valid document without shipping vanilla's
// full biome table (out of scope: world generation).
func DefaultBiome() *nbt.Compound {
	b := nbt.NewCompound()
	b.Set("precipitation", "rain")
	b.Set("depth", float32(0.125))
	b.Set("temperature", float32(0.8))
	b.Set("scale", float32(0.05))
	b.Set("downfall", float32(0.4))
	b.Set("category", "plains")
	effects := nbt.NewCompound()
	effects.Set("sky_color", int32(7907327))
	effects.Set("water_fog_color", int32(329011))
	effects.Set("fog_color", int32(12638463))
	effects.Set("water_color", int32(4159204))
	b.Set("effects", effects)
	return b
}

// DefaultDimensionCodec builds the minimal "minecraft:dimension_type"
// and "minecraft:worldgen/biome" registries JoinGame's dimension codec
// tag must carry, per baseline's "Dimension codec" composite value
// shape.
func DefaultDimensionCodec() *nbt.Compound {
	codec := nbt.NewCompound()

	dimTypeEntry := nbt.NewCompound()
	dimTypeEntry.Set("name", "minecraft:overworld")
	dimTypeEntry.Set("id", int32(0))
	dimTypeEntry.Set("element", DefaultDimensionType())

	dimTypes := nbt.NewCompound()
	dimTypes.Set("type", "minecraft:dimension_type")
	dimTypes.Set("value", &nbt.List{ElemType: nbt.TagCompound, Items: []nbt.Value{dimTypeEntry}})
	codec.Set("minecraft:dimension_type", dimTypes)

	biomeEntry := nbt.NewCompound()
	biomeEntry.Set("name", "minecraft:plains")
	biomeEntry.Set("id", int32(0))
	biomeEntry.Set("element", DefaultBiome())

	biomes := nbt.NewCompound()
	biomes.Set("type", "minecraft:worldgen/biome")
	biomes.Set("value", &nbt.List{ElemType: nbt.TagCompound, Items: []nbt.Value{biomeEntry}})
	codec.Set("minecraft:worldgen/biome", biomes)

	return codec
}
